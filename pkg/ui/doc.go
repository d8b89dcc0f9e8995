// Package ui renders extraction results for the command line.
package ui
