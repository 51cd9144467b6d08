// Package ui provides semantic text formatting for CLI output.
//
// Formatters colour their text when the terminal supports it. When NO_COLOR
// is set or the terminal can't render colour, a text decoration is used
// instead:
//
//	ui.Code.Sprint("asarlock protect")   // `asarlock protect`
//	ui.Stage.Sprint("MainCompiled")      // [MainCompiled]
//	ui.Highlight.Sprint("demo")          // 'demo'
//	ui.Muted.Sprint("optional")          // (optional)
//	ui.Path.Sprint("resources/app.asar") // no decoration
//
// Size and Elapsed render byte counts and durations for summaries.
package ui
