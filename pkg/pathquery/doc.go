// Package pathquery locates controls in built devices with slash paths.
//
// A path is a sequence of segments separated by '/'. The first segment
// selects devices, every further segment narrows the candidate set by one
// level:
//
//	name      a control name or alias; '*' and '?' glob inside the name
//	<Layout>  controls built from Layout or a layout extending it
//	{Usage}   controls carrying Usage anywhere below the current candidates
//
// Matching ignores case and a leading '/' is optional, so "<gamepad>/{submit}"
// and "/Gamepad1/buttonSouth" are both valid.
//
// TryGetControlLayout and TryGetDeviceLayout answer what a path refers to
// from the registered layouts alone, without any built device.
package pathquery
