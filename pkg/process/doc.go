// SPDX-License-Identifier: BSD-3-Clause

// Package process bridges pkg/svc's Service interface to
// cirello.io/oversight/v2's supervision tree, recovering panics into errors
// so one subsystem crashing never takes the oversight tree down with it.
package process
