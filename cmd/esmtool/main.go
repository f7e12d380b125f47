/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/CyberSys/openmw/cmd/esmtool/cmd"

func main() {
	cmd.Execute()
}
