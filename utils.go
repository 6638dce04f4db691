package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/manishrjain/keys"
	"github.com/pkg/errors"
)

func checkf(err error, format string, args ...any) {
	if err != nil {
		log.Printf(format, args...)
		log.Println()
		log.Fatalf("%+v", errors.WithStack(err))
	}
}

func assertf(ok bool, format string, args ...any) {
	if !ok {
		log.Printf(format, args...)
		log.Println()
		log.Fatalf("%+v", errors.Errorf("Should be true, but is false"))
	}
}

var errc = color.New(color.BgRed, color.FgWhite).PrintfFunc()

func oerr(msg string) {
	errc("\tERROR: " + msg + " ")
	fmt.Println()
	fmt.Println("Flags available:")
	flag.PrintDefaults()
	fmt.Println()
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// hostOpener returns the command the host uses to open a file with its
// default application.
func hostOpener(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	case "darwin":
		return "open", []string{path}
	}
	return "xdg-open", []string{path}
}

func openWithHost(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "generated file not found")
	}
	name, args := hostOpener(runtime.GOOS, path)
	if err := exec.Command(name, args...).Start(); err != nil {
		return errors.Wrapf(err, "unable to run `%s %s`", name, strings.Join(args, " "))
	}
	return nil
}

func setDefaultMappings(ks *keys.Shortcuts) {
	ks.BestEffortAssign('o', ".open", "default")
	ks.BestEffortAssign('q', ".quit", "default")
}

// offerOpen shows a one-key menu after a successful run.
func offerOpen(path string) {
	singleCharMode()
	defer saneMode()

	var ks keys.Shortcuts
	setDefaultMappings(&ks)
	fmt.Printf("Generated %s\n", path)
	ks.Print("default", false)
	r := make([]byte, 1)
	if _, err := os.Stdin.Read(r); err != nil {
		return
	}
	fmt.Println()
	if opt, has := ks.MapsTo(rune(r[0]), "default"); has && opt == ".open" {
		if err := openWithHost(path); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
}

func singleCharMode() {
	// disable input buffering
	exec.Command("stty", "-F", "/dev/tty", "cbreak", "min", "1").Run()
	// do not display entered characters on the screen
	exec.Command("stty", "-F", "/dev/tty", "-echo").Run()
}

func saneMode() {
	exec.Command("stty", "-F", "/dev/tty", "sane").Run()
}
