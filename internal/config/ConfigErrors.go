package config

import "fmt"

type ConfigFileInvalidError struct {
	Err error
}

func (e *ConfigFileInvalidError) Error() string {
	return fmt.Sprintf("Configuration file is invalid: %s", e.Err)
}

func (e *ConfigFileInvalidError) Unwrap() error {
	return e.Err
}

type ConfigFileNotFoundException struct {
	Path string
	Err  error
}

func (e *ConfigFileNotFoundException) Error() string {
	return fmt.Sprintf("Configuration file not found: %s", e.Path)
}

type ConfigFileAlreadyExistsError struct {
	Path string
}

func (e *ConfigFileAlreadyExistsError) Error() string {
	return fmt.Sprintf("Configuration file already exists: %s", e.Path)
}
