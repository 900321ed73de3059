// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"os"
)

func main() {
	var code int
	root := NewRootCommand(&code)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(code)
}
