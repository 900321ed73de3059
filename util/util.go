// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Set map[string]bool

func NewSet() Set {
	return make(Set)
}

func (s Set) Add(key string) {
	s[key] = true
}

func MarshalJSON(v interface{}, pretty bool) []byte {
	var res []byte
	if pretty {
		res, _ = json.MarshalIndent(v, "", "    ")
	} else {
		res, _ = json.Marshal(v)
	}
	return res
}

func MakeDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}

func MakeParentDir(path string) error {
	return MakeDir(filepath.Dir(path))
}
