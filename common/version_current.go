package common

// CurrentVersion represents the current build version.
// This is the only one in the system
var CurrentVersion = Version{
	Major:  1,
	Minor:  1,
	Patch:  0,
	Suffix: "dev",
}
