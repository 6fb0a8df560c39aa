package routing

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Stop is a bus stop and the set of routes serving it.
type Stop struct {
	ID        int      `validate:"gte=0"`
	Name      string   `validate:"required"`
	Latitude  float64  `validate:"gte=-90,lte=90"`
	Longitude float64  `validate:"gte=-180,lte=180"`
	Routes    []string `validate:"dive,required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func stopValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateStop checks a single record. Failures wrap ErrInvalidInput.
func ValidateStop(stop Stop) error {
	if strings.TrimSpace(stop.Name) == "" {
		return fmt.Errorf("%w: stop %d: name is required", ErrInvalidInput, stop.ID)
	}
	if err := stopValidator().Struct(stop); err != nil {
		return fmt.Errorf("%w: stop %d: %v", ErrInvalidInput, stop.ID, err)
	}
	return nil
}

// Normalized returns a copy with a trimmed name and trimmed, de-duplicated,
// sorted routes.
func (s Stop) Normalized() Stop {
	s.Name = strings.TrimSpace(s.Name)
	routes := make([]string, 0, len(s.Routes))
	for _, r := range s.Routes {
		routes = append(routes, strings.TrimSpace(r))
	}
	slices.Sort(routes)
	s.Routes = slices.Compact(routes)
	return s
}
