package flodesk

// authGroups is the fixed lookup order. Within a group a 404 moves on to the
// next encoding. A 401/403 abandons the group for the next auth mode; in the
// last group it is treated like a 404.
var authGroups = [][]Strategy{
	{
		{Auth: AuthBasic, Encoded: false},
		{Auth: AuthBasic, Encoded: true},
	},
	{
		{Auth: AuthApiKey, Encoded: false},
		{Auth: AuthApiKey, Encoded: true},
	},
}

func isAuthFailure(status int) bool {
	return status == 401 || status == 403
}
