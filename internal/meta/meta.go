// Package meta holds small process-wide ambient helpers that
// other packages would otherwise have to thread through every call.
package meta

import "os"

var pwd string

// Pwd returns the process's working directory, cached after the first call.
func Pwd() string {
	if pwd != "" {
		return pwd
	}
	var err error
	pwd, err = os.Getwd()
	if err != nil {
		panic(err)
	}
	return pwd
}
