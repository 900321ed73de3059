// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event holds the fields of a check result the relay reads.
type Event struct {
	CheckName  string
	Output     string
	ClientName string
}

type rawEvent struct {
	Check *struct {
		Name   *string `json:"name"`
		Output *string `json:"output"`
	} `json:"check"`
	Client *struct {
		Name *string `json:"name"`
	} `json:"client"`
}

func DecodeEvent(raw []byte) (*Event, error) {
	var re rawEvent
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if re.Check == nil {
		return nil, missing("check")
	}
	if re.Check.Name == nil || *re.Check.Name == "" {
		return nil, missing("check.name")
	}
	if re.Check.Output == nil {
		return nil, missing("check.output")
	}
	if re.Client == nil {
		return nil, missing("client")
	}
	if re.Client.Name == nil || *re.Client.Name == "" {
		return nil, missing("client.name")
	}
	return &Event{
		CheckName:  *re.Check.Name,
		Output:     *re.Check.Output,
		ClientName: *re.Client.Name,
	}, nil
}

func missing(field string) error {
	return &DecodeError{Cause: fmt.Errorf("%w: %s", ErrMissingField, field)}
}
