package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(args)
	case "model":
		err = runModel(args)
	case "mcp":
		err = runMCP(args)
	case "scan":
		err = runScan(args)
	case "status":
		err = runStatus(args)
	case "knowledge":
		err = runKnowledge(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "a3sist %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `a3sist - A3sist agent-orchestration runtime admin CLI

Usage:
  a3sist serve  -projectdir <dir> [-logdir <dir>]         run background schedulers until signaled
  a3sist model  <list|add|remove|activate|test> -projectdir <dir> [flags]
  a3sist mcp    <list|add|remove|connect> -projectdir <dir> [flags]
  a3sist scan   -projectdir <dir> -path <dir>              run one workspace scan and print the report
  a3sist status -projectdir <dir>                          print queue/governor/provider/MCP status
  a3sist knowledge index -projectdir <dir> [-dot <file>]   (re)build the knowledge graph the scan engine retrieves from

Run 'a3sist <command> -h' for flags specific to a command.
`)
}
