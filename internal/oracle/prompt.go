package oracle

// extractionPrompt instructs the model to return the e-cheque field set as
// strict JSON. The currency, fee and next_step guidance mirrors the local
// rule layer; the model's answers for derivable fields are still recomputed
// and only kept for mismatch auditing.
const extractionPrompt = `Extract the following information from this e-cheque and return it as JSON. For the currency field,
please normalize it according to these rules:
- '¥' or '￥' or 'RMB' should be normalized to 'CNY'
- '$' or 'USD' or 'US$' should be normalized to 'USD'
- 'HK$' or 'HKD' should be normalized to 'HKD'
- '€' should be normalized to 'EUR'
- '£' should be normalized to 'GBP'

Also, analyze the remarks field to determine if this is:
1. A trailer fee payment (includes any mention of trailer, rebate for trailer, etc.)
2. A management fee payment (only for OFS/Oreana Financial Services, includes managed services fee, management fee, etc.)

Schema:
{
  "type": "object",
  "properties": {
    "bank_name": { "type": "string", "description": "The name of the bank issuing the e-cheque." },
    "date": { "type": "string", "format": "date", "description": "The date the e-cheque was issued (YYYY-MM-DD)." },
    "payee": { "type": "string", "description": "The name of the person or entity to whom the e-cheque is payable." },
    "payer": { "type": "string", "description": "The name of the account the funds are drawn from." },
    "amount_numerical": { "type": "string", "description": "The amount of the e-cheque in numerical form (e.g., 66969.77)." },
    "amount_words": { "type": "string", "description": "The amount of the e-cheque in words." },
    "cheque_number": { "type": "string", "description": "The full cheque number, including all digits and spaces." },
    "key_identifier": { "type": "string", "description": "The first six digits of the cheque number." },
    "currency": { "type": "string", "description": "The normalized currency code (CNY, USD, HKD, EUR, GBP)" },
    "remarks": { "type": "string", "description": "The remark of the e-cheque" },
    "is_trailer_fee": { "type": "boolean", "description": "True if this is a trailer fee payment based on remarks" },
    "is_management_fee": { "type": "boolean", "description": "True if this is a management fee payment for OFS/Oreana" },
    "next_step": { "type": "string" }
  },
  "required": ["date", "payee", "amount_numerical", "key_identifier", "payer", "next_step", "is_trailer_fee", "is_management_fee"]
}

Rules for next_step determination:
1. If the 'remarks' field contains "URGENT", set 'next_step' to 'Flag for Manual Review'
2. If the 'currency' is not 'HKD', set 'next_step' to 'Flag for Manual Review'
3. Otherwise, set 'next_step' to 'Process Payment'

Return only the JSON object with no additional text or formatting.`
