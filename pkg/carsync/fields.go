package carsync

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
)

// ErrInvalidFields is wrapped by every ParseFields failure.
var ErrInvalidFields = errors.New("carsync: invalid car fields")

// ParseFields validates raw user input for a create or update. Brand is
// required and trimmed, model is trimmed and optional, price must parse as a
// finite number and year as an integer.
func ParseFields(brand, model, price, year string) (carapi.Fields, error) {
	fields := carapi.Fields{
		Brand: strings.TrimSpace(brand),
		Model: strings.TrimSpace(model),
	}
	if fields.Brand == "" {
		return carapi.Fields{}, fmt.Errorf("%w: brand is required", ErrInvalidFields)
	}

	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return carapi.Fields{}, fmt.Errorf("%w: price %q is not a number", ErrInvalidFields, price)
	}
	fields.Price = p

	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return carapi.Fields{}, fmt.Errorf("%w: year %q is not an integer", ErrInvalidFields, year)
	}
	fields.Year = carapi.IntPtr(y)
	return fields, nil
}
