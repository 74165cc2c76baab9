package field

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tbxark/meetform/types"
)

// Required rejects nil values and blank text.
func Required(title, description string) Validator {
	return func(raw any) *types.FieldError {
		if IsEmpty(raw) {
			return &types.FieldError{Title: title, Description: description}
		}
		return nil
	}
}

// MaxLength rejects text longer than n characters.
func MaxLength(n int, title string) Validator {
	return func(raw any) *types.FieldError {
		if utf8.RuneCountInString(strings.TrimSpace(Text(raw))) > n {
			return &types.FieldError{
				Title:          title,
				Description:    fmt.Sprintf("Must be at most %d characters long.", n),
				Recommendation: "Shorten the value.",
			}
		}
		return nil
	}
}

// Integer rejects values that are not whole numbers.
func Integer(title string) Validator {
	return func(raw any) *types.FieldError {
		if _, ok := asInt(raw); !ok {
			return &types.FieldError{
				Title:       title,
				Description: fmt.Sprintf("%q is not a whole number.", Text(raw)),
			}
		}
		return nil
	}
}

// IntRange rejects whole numbers outside [lo, hi].
func IntRange(lo, hi int64, title string) Validator {
	return func(raw any) *types.FieldError {
		n, ok := asInt(raw)
		if !ok || n < lo || n > hi {
			return &types.FieldError{
				Title:       title,
				Description: fmt.Sprintf("Must be a whole number between %d and %d.", lo, hi),
			}
		}
		return nil
	}
}

// OneOf rejects text that is not one of values (case-insensitive).
func OneOf(values []string, title string) Validator {
	return func(raw any) *types.FieldError {
		v := strings.TrimSpace(Text(raw))
		for _, allowed := range values {
			if strings.EqualFold(v, allowed) {
				return nil
			}
		}
		return &types.FieldError{
			Title:       title,
			Description: fmt.Sprintf("Must be one of %s.", strings.Join(values, ", ")),
		}
	}
}

// Pattern rejects text that does not match re.
func Pattern(re *regexp.Regexp, title, description string) Validator {
	return func(raw any) *types.FieldError {
		if !re.MatchString(strings.TrimSpace(Text(raw))) {
			return &types.FieldError{Title: title, Description: description}
		}
		return nil
	}
}

// Optional runs v only when the value is not empty.
func Optional(v Validator) Validator {
	return func(raw any) *types.FieldError {
		if IsEmpty(raw) {
			return nil
		}
		return v(raw)
	}
}

// All runs validators in order and stops at the first failure.
func All(validators ...Validator) Validator {
	return func(raw any) *types.FieldError {
		for _, v := range validators {
			if fe := v(raw); fe != nil {
				return fe
			}
		}
		return nil
	}
}

// SwimTime rejects text that is not a swim time such as "1:02.34" or "28.10".
func SwimTime(title string) Validator {
	return func(raw any) *types.FieldError {
		if _, ok := parseSwimTime(Text(raw)); !ok {
			return &types.FieldError{
				Title:          title,
				Description:    fmt.Sprintf("%q is not a swim time.", Text(raw)),
				Recommendation: "Write times as m:ss.hh or ss.hh.",
			}
		}
		return nil
	}
}
