package httpapi

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"todo-platform/internal/apperr"
	"todo-platform/internal/paging"
	"todo-platform/internal/todos"
)

const (
	minNameLen     = 4
	minPasswordLen = 4
	maxPasswordLen = 72 // bcrypt input limit
	minTitleLen    = 4
)

type validator interface {
	Validate() []apperr.FieldError
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		errs = append(errs, apperr.FieldError{Field: "name", Message: "name is required"})
	case utf8.RuneCountInString(name) < minNameLen:
		errs = append(errs, apperr.FieldError{Field: "name", Message: "name must be at least 4 characters"})
	}
	errs = append(errs, validateEmail(r.Email)...)
	switch {
	case r.Password == "":
		errs = append(errs, apperr.FieldError{Field: "password", Message: "password is required"})
	case utf8.RuneCountInString(r.Password) < minPasswordLen:
		errs = append(errs, apperr.FieldError{Field: "password", Message: "password must be at least 4 characters"})
	case len(r.Password) > maxPasswordLen:
		errs = append(errs, apperr.FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []apperr.FieldError {
	errs := validateEmail(r.Email)
	if r.Password == "" {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r refreshRequest) Validate() []apperr.FieldError {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return []apperr.FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

type createTodoRequest struct {
	Title string `json:"title"`
}

func (r createTodoRequest) Validate() []apperr.FieldError {
	if strings.TrimSpace(r.Title) == "" {
		return []apperr.FieldError{{Field: "title", Message: "title is required"}}
	}
	return validateTitle(r.Title)
}

type updateTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

func (r updateTodoRequest) Validate() []apperr.FieldError {
	if r.Title == nil {
		return nil
	}
	return validateTitle(*r.Title)
}

func validateTitle(title string) []apperr.FieldError {
	t := strings.TrimSpace(title)
	if t == "" {
		return []apperr.FieldError{{Field: "title", Message: "title must not be blank"}}
	}
	if utf8.RuneCountInString(t) < minTitleLen {
		return []apperr.FieldError{{Field: "title", Message: "title must be at least 4 characters"}}
	}
	return nil
}

func validateEmail(email string) []apperr.FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []apperr.FieldError{{Field: "email", Message: "email is required"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []apperr.FieldError{{Field: "email", Message: "email format is invalid"}}
	}
	return nil
}

// parsePage reads page and limit query params. Missing values take defaults.
func parsePage(pageStr, limitStr string) (paging.Request, []apperr.FieldError) {
	var (
		req  paging.Request
		errs []apperr.FieldError
	)
	if pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 1 {
			errs = append(errs, apperr.FieldError{Field: "page", Message: "page must be an integer >= 1"})
		}
		req.Page = n
	}
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > paging.MaxLimit {
			errs = append(errs, apperr.FieldError{Field: "limit", Message: "limit must be an integer between 1 and 100"})
		}
		req.Limit = n
	}
	if len(errs) > 0 {
		return paging.Request{}, errs
	}
	return req.Normalize(), nil
}

func parseTodoQuery(pageStr, limitStr, completedStr, sortStr string) (todos.ListQuery, []apperr.FieldError) {
	page, errs := parsePage(pageStr, limitStr)

	var completed *bool
	if completedStr != "" {
		b, err := strconv.ParseBool(completedStr)
		if err != nil {
			errs = append(errs, apperr.FieldError{Field: "completed", Message: "completed must be true or false"})
		} else {
			completed = &b
		}
	}

	sort, err := todos.ParseSort(sortStr)
	if err != nil {
		errs = append(errs, apperr.FieldError{Field: "sort", Message: err.Error()})
	}
	if len(errs) > 0 {
		return todos.ListQuery{}, errs
	}
	return todos.ListQuery{Page: page, Completed: completed, Sort: sort}, nil
}
