// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationRule checks tool arguments and returns an error if invalid.
type ValidationRule func(args map[string]interface{}) error

// ChainValidation runs rules in order until the first error.
func ChainValidation(rules ...ValidationRule) ValidationRule {
	return func(args map[string]interface{}) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireStringArg ensures a string argument is present and non-empty.
func RequireStringArg(key, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		value, ok := args[key]
		if !ok || value == nil {
			return fmt.Errorf("%s", message)
		}
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// RequireStringTypeArg ensures an argument is present and is a string. Empty
// text is accepted.
func RequireStringTypeArg(key, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		if _, ok := args[key].(string); !ok {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// RequireEnumArg ensures a string argument is one of the allowed values.
func RequireEnumArg(key string, allowed ...string) ValidationRule {
	return func(args map[string]interface{}) error {
		str, _ := args[key].(string)
		for _, candidate := range allowed {
			if str == candidate {
				return nil
			}
		}
		return fmt.Errorf("invalid '%s' parameter %q: must be one of %s", key, str, strings.Join(allowed, ", "))
	}
}

// RequirePatternArg ensures a string argument matches pattern.
func RequirePatternArg(key string, pattern *regexp.Regexp, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		str, ok := args[key].(string)
		if !ok || !pattern.MatchString(str) {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// RejectUnknownArgs ensures args only carries declared parameters.
func RejectUnknownArgs(params []Param) ValidationRule {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	return func(args map[string]interface{}) error {
		for key := range args {
			if !declared[key] {
				return fmt.Errorf("unexpected parameter '%s'", key)
			}
		}
		return nil
	}
}

func stringArg(args map[string]interface{}, key string) string {
	str, _ := args[key].(string)
	return str
}
