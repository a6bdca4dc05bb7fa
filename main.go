// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/baseyfare/pasahe/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
