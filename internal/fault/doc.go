// Package fault classifies errors under package-level sentinel kinds.
//
// Each package declares its failure kinds as sentinel errors and wraps
// underlying causes with [Wrap] or [Wrapf]. The resulting error matches both
// the kind and the cause under [errors.Is] and [errors.As]. Causes are also
// captured with a stack trace so that [Format] can print where a failure was
// first classified when debug output is enabled.
//
//	var ErrRuntime = errors.New("runtime error")
//
//	if err := client.Do(); err != nil {
//	    return fault.Wrap(ErrRuntime, err)
//	}
package fault
