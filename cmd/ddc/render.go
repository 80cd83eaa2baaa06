package main

import "omibyte.io/devicedriver/internal/diag"

func renderDiag(d diag.Diagnostic, src string, asSnippet bool) string {
	if asSnippet {
		return diag.RenderSnippet(d, src)
	}
	return diag.Render(d, src)
}
