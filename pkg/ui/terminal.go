package ui

import "fmt"

// ASCII banner for the application
const Banner = `
  _                 _ _           _
 (_) __ _  ___ ___ | | | ___  ___| |_ ___  _ __
 | |/ _` + "`" + ` |/ __/ _ \| | |/ _ \/ __| __/ _ \| '__|
 | | (_| | (_| (_) | | |  __/ (__| || (_) | |
 |_|\__, |\___\___/|_|_|\___|\___|\__\___/|_|
    |___/        account pool collection utility
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// DisableColors replaces every color function with the identity
func DisableColors() {
	identity := func(text string) string { return text }
	Cyan, Yellow, Red, Green, Magenta, Dim = identity, identity, identity, identity, identity, identity
}

// PrintBanner prints the ASCII banner with color
func PrintBanner() {
	fmt.Print(Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}
