// Package fakes provides test doubles for credprune's external collaborators.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeDirectoryClient().
//	    WithApplication("obj-1", "a1", "Billing API", "11111111-1111-1111-1111-111111111111")
//	runner := revoke.NewRunner(fake)
//	// Run batches, then inspect fake.Calls()...
package fakes
