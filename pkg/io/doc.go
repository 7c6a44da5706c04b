// Package io exports positioned schema diagrams and imports saved dumps.
//
// # JSON Format
//
// The JSON dump is the render contract produced by [layout.Flow]:
//
//	{
//	  "nodes": [
//	    {"id": "Account", "type": "default", "position": {"x": 0, "y": 0},
//	     "data": {"label": "Account", "kind": "standard"}}
//	  ],
//	  "edges": [
//	    {"id": "e-0-Contact-Account-AccountId", "source": "Contact",
//	     "target": "Account", "label": "AccountId", "kind": "lookup",
//	     "style": {"strokeDasharray": "5 5"}}
//	  ],
//	  "truncated": false
//	}
//
// # Export
//
// Use [Write] to encode a diagram in any [render.Format], or [ExportFile]
// to write it to a path:
//
//	err := io.ExportFile(ctx, positioned, render.FormatSVG, "account.svg", nodelink.Options{})
//
// # Import
//
// Use [ReadJSON] or [ImportJSON] to load a dump, then [FromFlow] to turn it
// back into a positioned graph that can be exported in another format. Node
// positions are preserved, so re-rendering does not run the layout again.
//
// [layout.Flow]: github.com/matzehuels/schemagraph/pkg/layout.Flow
package io
