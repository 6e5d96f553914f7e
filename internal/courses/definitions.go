// Package courses loads course definitions and the trees behind them.
package courses

import (
	"fmt"
	"regexp"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Definition describes one course in the courses file.
type Definition struct {
	ID    string   `mapstructure:"id" validate:"required,courseid"`
	Title string   `mapstructure:"title"`
	Root  string   `mapstructure:"root" validate:"required,location"`
	Tree  string   `mapstructure:"tree"`
	Decks []string `mapstructure:"decks" validate:"dive,location"`
}

// RootLocation returns the parsed root location.
func (d Definition) RootLocation() doctree.Location {
	loc, _ := doctree.ParseLocation(d.Root)
	return loc
}

// DeckLocations returns the parsed deck boundaries.
func (d Definition) DeckLocations() []doctree.Location {
	out := make([]doctree.Location, 0, len(d.Decks))
	for _, s := range d.Decks {
		if loc, err := doctree.ParseLocation(s); err == nil {
			out = append(out, loc)
		}
	}
	return out
}

type file struct {
	Courses []Definition `mapstructure:"courses" validate:"required,min=1,unique=ID,dive"`
}

var courseIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("location", func(fl validator.FieldLevel) bool {
		_, err := doctree.ParseLocation(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("courseid", func(fl validator.FieldLevel) bool {
		return courseIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// LoadDefinitions reads and validates the courses file at path. The format
// follows the file extension (YAML, JSON or TOML).
func LoadDefinitions(path string) ([]Definition, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read courses file: %w", err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode courses file: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid courses file %s: %w", path, err)
	}
	return f.Courses, nil
}
