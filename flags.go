package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// bind maps viper keys to the flags that override them. The flags must
// already be defined on fs.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			panic(fmt.Sprintf("flag --%s is not defined", name))
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("bind --%s: %v", name, err))
		}
	}
}
