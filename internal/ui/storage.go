package ui

import (
	"errors"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

var errNoLocalStorage = errors.New("localStorage is not available")

// LocalStorage is the browser's window.localStorage. Outside the browser
// reads find nothing and writes fail.
type LocalStorage struct{}

func (LocalStorage) area() (app.Value, bool) {
	if !app.IsClient {
		return nil, false
	}
	ls := app.Window().Get("localStorage")
	if !ls.Truthy() {
		return nil, false
	}
	return ls, true
}

func (s LocalStorage) Get(key string) (string, bool, error) {
	ls, ok := s.area()
	if !ok {
		return "", false, nil
	}
	v := ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (s LocalStorage) Set(key, value string) (err error) {
	ls, ok := s.area()
	if !ok {
		return errNoLocalStorage
	}
	// setItem throws when the quota is exceeded.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("localStorage write failed")
		}
	}()
	ls.Call("setItem", key, value)
	return nil
}

func (s LocalStorage) Delete(key string) error {
	ls, ok := s.area()
	if !ok {
		return errNoLocalStorage
	}
	ls.Call("removeItem", key)
	return nil
}
