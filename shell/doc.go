// Package shell owns view navigation for the account-access flows.
//
// Flows never navigate on their own. They emit an authflow.Event carrying a
// Navigation; [Router] schedules it, fires it exactly once after its delay,
// and cancels anything still pending when the view is unmounted with Stop.
package shell
