package api

// Service accessors group Client methods by resource.
// Each service embeds *Client to share the session and settings.

type OrdersService struct{ *Client }

type ItemsService struct{ *Client }

type VariationsService struct{ *Client }

type AttributesService struct{ *Client }

type ManufacturersService struct{ *Client }

type StockService struct{ *Client }

type ContactsService struct{ *Client }

type AccountingService struct{ *Client }

type PricesService struct{ *Client }

type ReferrersService struct{ *Client }

type WarehousesService struct{ *Client }

type RedistributionsService struct{ *Client }

func (c *Client) Orders() OrdersService {
	return OrdersService{c}
}

func (c *Client) Items() ItemsService {
	return ItemsService{c}
}

func (c *Client) Variations() VariationsService {
	return VariationsService{c}
}

func (c *Client) Attributes() AttributesService {
	return AttributesService{c}
}

func (c *Client) Manufacturers() ManufacturersService {
	return ManufacturersService{c}
}

func (c *Client) Stock() StockService {
	return StockService{c}
}

func (c *Client) Contacts() ContactsService {
	return ContactsService{c}
}

func (c *Client) Accounting() AccountingService {
	return AccountingService{c}
}

func (c *Client) Prices() PricesService {
	return PricesService{c}
}

func (c *Client) Referrers() ReferrersService {
	return ReferrersService{c}
}

func (c *Client) Warehouses() WarehousesService {
	return WarehousesService{c}
}

func (c *Client) Redistributions() RedistributionsService {
	return RedistributionsService{c}
}
