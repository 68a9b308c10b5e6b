// Package manifest parses build manifests into build targets.
//
// A manifest is a YAML document listing the firmware images to build:
//
//	include:
//	  - board: nice_nano_v2
//	    shield: corne_left
//	  - board: nice_nano_v2
//	    shield: [corne_right, settings_reset]
//	    snippet: studio-rpc-usb-uart
//	    cmake-args: -DCONFIG_ZMK_STUDIO=y
//
// Every entry needs a board and a shield. The shield may be a single name or
// a list of names, in which case the entry expands into one [Target] per
// shield, in order. Snippet and cmake-args are optional.
package manifest
