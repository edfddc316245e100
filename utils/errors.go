// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

// Err returns the first non-nil error from errs, if any.
func Err(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Zero returns the zero value of any type T.
func Zero[T any]() T {
	var zero T
	return zero
}
