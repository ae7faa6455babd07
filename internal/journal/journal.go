// Package journal records undo actions so a call either commits every state
// change it made or none of them.
package journal

// Journal collects undo closures and commit hooks for the call in progress.
// It is not safe for concurrent use.
type Journal struct {
	undo   []func()
	commit []func()
	depth  int
}

// Record registers fn to run if the current call fails.
func (j *Journal) Record(fn func()) {
	if j.depth == 0 {
		return
	}
	j.undo = append(j.undo, fn)
}

// OnCommit registers fn to run after the outermost call succeeds. Outside a
// call fn runs immediately.
func (j *Journal) OnCommit(fn func()) {
	if j.depth == 0 {
		fn()
		return
	}
	j.commit = append(j.commit, fn)
}

// Active reports whether a call is in progress.
func (j *Journal) Active() bool {
	return j.depth > 0
}

// Run executes fn atomically. Nested Runs join the outermost one, which alone
// decides whether to commit or revert. A panic reverts and is re-raised.
func (j *Journal) Run(fn func() error) (err error) {
	if j.depth > 0 {
		return fn()
	}
	j.depth++
	committed := false
	defer func() {
		j.depth--
		if committed {
			return
		}
		j.revert()
	}()

	if err = fn(); err != nil {
		return err
	}
	committed = true
	hooks := j.commit
	j.undo, j.commit = nil, nil
	for _, h := range hooks {
		h()
	}
	return nil
}

func (j *Journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo, j.commit = nil, nil
}

// Set assigns v to *p and records the previous value.
func Set[V any](j *Journal, p *V, v V) {
	prev := *p
	*p = v
	j.Record(func() { *p = prev })
}

// SetKey assigns m[k] = v and records how to restore the previous entry,
// including its absence.
func SetKey[K comparable, V any](j *Journal, m map[K]V, k K, v V) {
	prev, existed := m[k]
	m[k] = v
	j.Record(func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}
