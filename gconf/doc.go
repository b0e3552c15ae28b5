/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Every program keeps one configuration singleton, written once from the genesis
file ("conf" section) and read at startup. Program identifiers and bounds
therefore never change while the host is running, and no instruction can
modify them.
*/
package gconf
