package token

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Parse reconstruye headers y claims de un token serializado SIN verificar
// la firma. La verificación es un paso separado (Verify) porque la clave
// correcta depende del kid y de la registration resuelta.
func Parse(serialized string) (*Token, error) {
	parser := jwtv5.NewParser()
	tok, _, err := parser.ParseUnverified(serialized, jwtv5.MapClaims{})
	if err != nil {
		return nil, &ParseError{Msg: "malformed token", Cause: err}
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, &ParseError{Msg: "unexpected claims type"}
	}
	claimsOut := make(map[string]any, len(mc))
	for k, v := range mc {
		claimsOut[k] = v
	}
	return &Token{
		headers:    tok.Header,
		claims:     claimsOut,
		serialized: serialized,
	}, nil
}
