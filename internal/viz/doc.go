// Package viz renders wavefield panels in the terminal.
//
// Two renderers are provided:
//
//   - [Render]: character-ramp heatmap of panel amplitudes, used by the
//     snapshot command and the explore TUI
//   - [Canvas]: Braille-based pixel canvas giving a higher-resolution
//     wavefront view of the same panel
//
// Both downsample the panel to the requested terminal size and
// normalize amplitudes against the panel's own peak.
package viz
