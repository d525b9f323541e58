package models

import (
	"fmt"
	"strings"
)

// Address is the structured shipping address of an order. It is stored as separate
// columns and is never encoded into a single delimited string for storage.
type Address struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

// Name joins first and last name.
func (a Address) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// String renders the address on one line for display.
func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, PH: %s",
		a.Name(), a.Street, a.City, a.PostalCode, a.Country, a.Phone)
}
