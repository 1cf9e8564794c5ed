//go:build !unix

package main

import "os"

func focusSignals() []os.Signal { return nil }
