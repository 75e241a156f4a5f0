// Command elfinspect is a thin demonstration CLI over the elfmodel and
// chain packages: for each file argument it parses the ELF object model,
// prints its file header, lists sections when -v is given, and disassembles
// any named function given with -func.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aeondave/elfchain/chain"
	"github.com/aeondave/elfchain/elfmodel"
	"github.com/aeondave/elfchain/region"
)

var (
	funcName = flag.String("func", "", "disassemble the named function in each file")
	showVer  = flag.Bool("version", false, "print version and exit")
	verbose  = flag.Bool("v", false, "print every section header")
)

const versionString = "elfinspect, version 0.1"

func init() {
	log.SetFlags(0)
	flag.Usage = customUsage
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] FILE...\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Inspect the section, program header and function layout of ELF files.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(versionString)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		customUsage()
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range args {
		if err := inspect(path); err != nil {
			log.Printf("%s: %v", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func inspect(path string) error {
	r, err := region.Load(path)
	if err != nil {
		return fmt.Errorf("loading: %w", err)
	}

	e, err := elfmodel.New(r)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	defer e.Destroy()

	hdr := e.Header()
	log.Printf("%s: %s", path, hdr.String())

	if *verbose {
		for _, s := range e.Sections() {
			name, err := e.GetSectionName(s)
			if err != nil {
				name = "<unresolved>"
			}
			log.Printf("  section %-20s type=%-12s size=%d addr=0x%x", name, s.Type, s.Size, s.Addr)
		}
	}

	if *funcName == "" {
		return nil
	}

	offset, ok := e.GetFunctionOffset(*funcName)
	if !ok {
		return fmt.Errorf("function %q not found", *funcName)
	}
	data, ok := e.GetFunctionChunk(*funcName)
	if !ok {
		return fmt.Errorf("function %q has no resolvable bytes", *funcName)
	}

	c, err := chain.FromBytes(offset, data)
	if err != nil {
		return fmt.Errorf("disassembling %q: %w", *funcName, err)
	}
	log.Printf("  %s @ 0x%x:\n%s", *funcName, offset, c.Str())
	return nil
}
