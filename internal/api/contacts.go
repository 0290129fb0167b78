package api

import "context"

// List lists customer contacts.
func (s ContactsService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointContacts, EndpointContacts.route(), p, nil)
}
