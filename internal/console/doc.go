// Package console streams process output line by line.
//
// Toolchain commands write output in arbitrary chunks, often from several
// goroutines at once (stdout and stderr of a container exec are copied
// independently). A [LineWriter] reassembles those chunks into whole lines
// and forwards each line to the destination as soon as it is complete, so
// output appears while the command runs rather than after it exits.
package console
