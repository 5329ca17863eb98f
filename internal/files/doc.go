// Package files discovers amplification exports on disk.
//
// Discovery lists the files of a directory whose extension the
// amplification loader understands, skipping spreadsheet lock files and
// hidden files. ExpandInputs turns a mix of file and directory arguments
// into an ordered list of files:
//
//	discovery := files.NewDiscovery("")
//	inputs, err := discovery.ExpandInputs([]string{"plate1.xlsx", "runs/"})
package files
