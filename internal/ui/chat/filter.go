// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/morganforge/finchat-tui/internal/model"
)

// ParseFilterInput turns "fund: alpha, period: Q3" into filter values.
// Both ':' and '=' separate keys from values. Required filters must all be
// present; unknown keys are rejected to catch typos.
func ParseFilterInput(text string, filters []model.Filter) (map[string]string, error) {
	known := make(map[string]bool, len(filters))
	for _, f := range filters {
		known[f.Name] = true
	}

	values := make(map[string]string)
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sep := strings.IndexAny(part, ":=")
		if sep < 0 {
			// A single bare value answers a single-filter request.
			if len(filters) == 1 && len(values) == 0 {
				values[filters[0].Name] = part
				continue
			}
			return nil, fmt.Errorf("could not parse %q, use name: value", part)
		}
		key := strings.TrimSpace(part[:sep])
		val := strings.TrimSpace(part[sep+1:])
		if key == "" || val == "" {
			return nil, fmt.Errorf("could not parse %q, use name: value", part)
		}
		if len(known) > 0 && !known[key] {
			return nil, fmt.Errorf("unknown filter %q", key)
		}
		values[key] = val
	}

	for _, f := range filters {
		if f.IsRequired && values[f.Name] == "" {
			return nil, fmt.Errorf("filter %q is required", f.Name)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no filter values given")
	}
	return values, nil
}
