// Package manage implements the short-lived CLI verbs that mutate the
// alarm collection: add, set, enable, disable, remove and list.
//
// Wake-up timers are process-local, so these verbs only mutate the store;
// the daemon re-arms every enabled alarm at startup.
package manage
