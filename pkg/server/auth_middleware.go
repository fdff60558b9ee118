package server

import (
	"fmt"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
)

//
// Every route requires a JWT signed with the server's secret:
//
//   token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{})
//   tokenString, _ := token.SignedString(secret)
//
// sent as "Authorization: Bearer <token>".
//

func CreateJwtMiddleware(jwtSecret []byte) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			authorizationHeader := req.Header.Get("Authorization")
			if authorizationHeader == "" {
				writeMessage(w, http.StatusUnauthorized, "An authorization header is required")
				return
			}

			scheme, tokenString, found := strings.Cut(authorizationHeader, " ")
			if !found || (scheme != "Bearer" && scheme != "Token") {
				writeMessage(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}

				return jwtSecret, nil
			})

			if err != nil || !token.Valid {
				writeMessage(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			next(w, req)
		}
	}
}
