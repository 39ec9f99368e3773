// Package main Mirror-Git repository mirroring service API
package main

import "github.com/DeanWanghewei/mirror-git/internal"

func main() {
	internal.Run()
}
