package custody

import (
	"reflect"

	"github.com/iov-one/custody/errors"
)

// Marshaller is anything that can be represented in binary.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is an instruction for a program to take an action. It is just the
// request, and must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Path is used by the Router to locate the proper Handler, for
	// example "escrow/take".
	Path() string

	// Validate performs stateless checks of the message content.
	Validate() error
}

// Tx represent the data sent from the user to the host. It includes the
// instruction, along with information needed to authenticate the sender.
type Tx interface {
	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return err
	}
	if msg == nil {
		return errors.Wrap(errors.ErrInvalidState, "nil message")
	}
	return loadMsgInto(msg, destination)
}

func loadMsgInto(msg Msg, destination interface{}) error {
	dst := reflect.ValueOf(destination)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return errors.Wrap(errors.ErrHuman, "destination must be a non nil pointer")
	}
	src := reflect.ValueOf(msg)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return errors.Wrapf(errors.ErrInvalidType, "want %s, got %T", dst.Elem().Type(), msg)
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	dst.Elem().Set(src)
	return nil
}
