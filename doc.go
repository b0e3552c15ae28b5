/*
Package custody defines the interfaces and value types shared by all custody
programs: addresses, derived (program) addresses and the authority credentials
proving control over them, storage, transactions and handlers.

A custody program never holds a private key. Funds sit in accounts whose
address is derived from a program id and a list of seeds, and the program
proves its right to move them by presenting the seeds and the bump that
re-derive that address. Look into the x/ subpackages for the programs built on
top of these building blocks.
*/
package custody
