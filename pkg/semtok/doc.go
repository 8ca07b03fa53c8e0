/*
Package semtok turns classified capture ranges into a renderer-safe
semantic token stream.

	  +-----------+     +------------+     +-----------+
	  | Captures  | --> | Classify   | --> | Normalize |
	  +-----------+     +------------+     +-----------+
	                                             |
	  +------------+     +-----------+           v
	  | Injections | --> |   Merge   | <-- flat tokens
	  +------------+     +-----------+
	                           |
	                           v
	                     final stream

Tokens in the final stream never overlap, never span more than one
line, and are ordered by (line, character).
*/
package semtok
