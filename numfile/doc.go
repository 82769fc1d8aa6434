// Package numfile reads, writes, generates and checks newline-delimited
// decimal integer files, the on-disk format used by the external sorter.
//
// Two readers are provided. Read and Load are lenient: they split on any
// whitespace and drop tokens that do not parse. Scanner is strict: one record
// per line, and the first blank or malformed line is reported as a
// *ParseError. The sorter loads input leniently and reads its own staged files
// strictly; the checker is strict.
package numfile
