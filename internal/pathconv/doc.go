// Package pathconv maps content directories to permalinks and back.
//
// A page is a directory holding one descriptor file. Directory names may carry
// an ordering prefix ("2.team") that controls sibling order but never appears
// in the permalink ("/about/team/"). Directories without a prefix are floating
// pages: reachable by permalink, left out of ordered listings.
//
// Everything here is pure string work; callers do the I/O.
package pathconv
