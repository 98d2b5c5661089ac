// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package main

import (
	"github.com/cilium/cidragg/cidragg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.Fatalf("%s", err)
	}
}
