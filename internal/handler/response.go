package handler

import (
	"github.com/labstack/echo/v4"
)

type successResponse struct {
	Data interface{} `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ResponseSuccess writes {"data": data}.
func ResponseSuccess(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, successResponse{Data: data})
}

// ResponseError writes {"error": "msg: err"}.
func ResponseError(c echo.Context, status int, msg string, err error) error {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return c.JSON(status, errorResponse{Error: msg})
}
