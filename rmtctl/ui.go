package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	colorTitle   = color.New(color.FgHiWhite, color.Bold)
	colorKey     = color.New(color.FgHiCyan)
	colorValue   = color.New(color.FgHiYellow)
	colorHigh    = color.New(color.FgHiGreen)
	colorLow     = color.New(color.FgHiBlue)
	colorSuccess = color.New(color.FgHiGreen, color.Bold)
	colorError   = color.New(color.FgHiRed, color.Bold)
	colorWarn    = color.New(color.FgHiYellow, color.Bold)
	colorInfo    = color.New(color.FgHiCyan)
	colorMuted   = color.New(color.FgHiBlack)
)

func title(msg string) {
	colorTitle.Println(msg)
}

func step(key string, value any) {
	fmt.Printf("  %s %s\n", colorKey.Sprintf("%-12s", key), colorValue.Sprint(value))
}

func info(msg string) {
	colorInfo.Println(msg)
}

func success(msg string) {
	colorSuccess.Print("✔ ")
	fmt.Println(msg)
}

func warn(msg string) {
	colorWarn.Fprint(os.Stderr, "! ")
	fmt.Fprintln(os.Stderr, msg)
}

func fail(msg string) {
	colorError.Fprint(os.Stderr, "✘ ")
	fmt.Fprintln(os.Stderr, msg)
}
