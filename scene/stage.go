// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "fmt"

// Stage is the owner of a [Surface]: a window or an embedding host.
// A surface without a stage is never painted.
type Stage struct {

	// Name is the name of the stage, for logging.
	Name string

	// Order is the stacking order of the stage among all stages,
	// lowest first. It orders surfaces that are recopied on every
	// pass by [FullRecopyEachFrame].
	Order int
}

func (st *Stage) String() string {
	if st == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (%d)", st.Name, st.Order)
}
